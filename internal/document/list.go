package document

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/harrison/goodread/internal/models"
)

// DefaultPath is tested when neither arguments nor config name a document.
const DefaultPath = "README.md"

// maxFetches bounds concurrent document loads.
const maxFetches = 4

// DocumentList is an ordered set of documents tested as one run.
type DocumentList struct {
	documents []*Document
	sink      models.EventSink
	logger    Logger
}

// NewDocumentList builds the list from explicit paths, falling back to the
// configured documents and then to README.md. Each path takes the edit and
// sync paths of the first configured entry with the same main path.
func NewDocumentList(paths []string, configured []models.DocumentDescriptor, opts Options) *DocumentList {
	opts = opts.withDefaults()

	if len(paths) == 0 {
		for _, desc := range configured {
			paths = append(paths, desc.Main)
		}
	}
	if len(paths) == 0 {
		paths = []string{DefaultPath}
	}

	list := &DocumentList{
		sink:   opts.Sink,
		logger: opts.Logger,
	}
	for _, path := range paths {
		desc := models.DocumentDescriptor{Main: path}
		for _, item := range configured {
			if item.Main == path {
				desc.Edit = item.Edit
				desc.Sync = item.Sync
				break
			}
		}
		list.documents = append(list.documents, New(desc, opts))
	}
	return list
}

// Documents returns the documents in test order.
func (l *DocumentList) Documents() []*Document {
	return l.documents
}

// Test tests every document in order and reports whether all are valid.
// A separator event follows each document except the last, which is
// followed by a blank event. With haltOnFirstFailure set, the first
// failure stops the run and its *validation.HaltError is returned.
// A document that cannot be loaded stops the run at that document; the
// documents before it are still tested.
func (l *DocumentList) Test(ctx context.Context, haltOnFirstFailure bool) (bool, error) {
	contents := l.prefetch(ctx, false)

	success := true
	for i, doc := range l.documents {
		path := doc.TestPath(false)
		if path != "" {
			if contents[i].err != nil {
				return false, contents[i].err
			}
			report, err := doc.testContents(path, contents[i].raw, haltOnFirstFailure)
			if err != nil {
				return false, err
			}
			success = success && report.Valid
		}
		l.emitBoundary(i)
	}
	return success, nil
}

// Sync runs Document.Sync for every document and reports whether every
// sync copy was valid. A sync copy that cannot be loaded stops the run at
// that document.
func (l *DocumentList) Sync(ctx context.Context) (bool, error) {
	contents := l.prefetch(ctx, true)

	success := true
	for i, doc := range l.documents {
		if doc.desc.Sync == "" {
			continue
		}
		if contents[i].err != nil {
			return false, contents[i].err
		}
		valid, err := doc.syncContents(ctx, contents[i].raw)
		if err != nil {
			return false, err
		}
		success = success && valid
	}
	return success, nil
}

// Edit runs Document.Edit for every document, stopping at the first error.
func (l *DocumentList) Edit(ctx context.Context) error {
	for _, doc := range l.documents {
		if err := doc.Edit(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (l *DocumentList) emitBoundary(index int) {
	if l.sink == nil {
		return
	}
	if index < len(l.documents)-1 {
		l.sink.Emit(models.Event{Kind: models.EventSeparator})
	} else {
		l.sink.Emit(models.Event{Kind: models.EventBlank})
	}
}

// loaded is the text of one document or the error loading it.
type loaded struct {
	raw string
	err error
}

// prefetch loads every document concurrently so slow remote documents do
// not serialize the run. Results keep list order. A failed load is kept in
// its slot and does not cancel the others.
func (l *DocumentList) prefetch(ctx context.Context, fromSync bool) []loaded {
	contents := make([]loaded, len(l.documents))

	var g errgroup.Group
	g.SetLimit(maxFetches)
	for i, doc := range l.documents {
		i, doc := i, doc
		path := doc.TestPath(fromSync)
		if path == "" {
			continue
		}
		g.Go(func() error {
			raw, err := Load(ctx, path, doc.opts.FetchTimeout)
			if err != nil {
				l.logger.LogDebug(fmt.Sprintf("load %s: %v", path, err))
			}
			contents[i] = loaded{raw: raw, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return contents
}
