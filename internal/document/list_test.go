package document

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/goodread/internal/models"
	"github.com/harrison/goodread/internal/validation"
)

func descriptors(list *DocumentList) []models.DocumentDescriptor {
	var out []models.DocumentDescriptor
	for _, doc := range list.Documents() {
		out = append(out, doc.Descriptor())
	}
	return out
}

func TestNewDocumentList(t *testing.T) {
	configured := []models.DocumentDescriptor{
		{Main: "README.md", Edit: "https://example.com/edit", Sync: "https://example.com/raw"},
		{Main: "docs/guide.md"},
	}

	tests := []struct {
		name       string
		paths      []string
		configured []models.DocumentDescriptor
		want       []models.DocumentDescriptor
	}{
		{
			name: "defaults to README.md",
			want: []models.DocumentDescriptor{{Main: "README.md"}},
		},
		{
			name:       "configured documents",
			configured: configured,
			want:       configured,
		},
		{
			name:       "explicit paths pick up configured edit and sync",
			paths:      []string{"README.md", "other.md"},
			configured: configured,
			want: []models.DocumentDescriptor{
				{Main: "README.md", Edit: "https://example.com/edit", Sync: "https://example.com/raw"},
				{Main: "other.md"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := NewDocumentList(tt.paths, tt.configured, Options{})
			if diff := cmp.Diff(tt.want, descriptors(list)); diff != "" {
				t.Errorf("descriptors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDocumentListTest(t *testing.T) {
	dir := t.TempDir()
	first := writeDoc(t, dir, "a.md", validDoc)
	second := writeDoc(t, dir, "b.md", invalidDoc)
	third := writeDoc(t, dir, "c.md", validDoc)

	rec := &recorder{}
	list := NewDocumentList([]string{first, second, third}, nil, Options{Sink: rec})

	success, err := list.Test(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, success)

	var boundaries []models.EventKind
	for _, kind := range rec.kinds() {
		if kind == models.EventSeparator || kind == models.EventBlank {
			boundaries = append(boundaries, kind)
		}
	}
	// each document emits one separator after its title, plus the boundary
	assert.Equal(t, []models.EventKind{
		models.EventSeparator, models.EventSeparator,
		models.EventSeparator, models.EventSeparator,
		models.EventSeparator, models.EventBlank,
	}, boundaries)
	assert.Equal(t, models.EventBlank, rec.events[len(rec.events)-1].Kind)

	for i, doc := range list.Documents() {
		report, tested := doc.Report()
		assert.True(t, tested, "document %d", i)
		assert.Equal(t, i != 1, report.Valid, "document %d", i)
	}
}

func TestDocumentListTestAllValid(t *testing.T) {
	dir := t.TempDir()
	list := NewDocumentList([]string{
		writeDoc(t, dir, "a.md", validDoc),
		writeDoc(t, dir, "b.md", "# No code\n"),
	}, nil, Options{})

	success, err := list.Test(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, success)
}

func TestDocumentListTestHalts(t *testing.T) {
	dir := t.TempDir()
	first := writeDoc(t, dir, "a.md", invalidDoc)
	second := writeDoc(t, dir, "b.md", validDoc)

	list := NewDocumentList([]string{first, second}, nil, Options{})

	success, err := list.Test(context.Background(), true)
	assert.False(t, success)

	var halt *validation.HaltError
	require.True(t, errors.As(err, &halt))
	assert.Equal(t, first, halt.Path)

	_, tested := list.Documents()[1].Report()
	assert.False(t, tested, "documents after a halt never run")
}

func TestDocumentListTestLoadError(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	list := NewDocumentList([]string{
		writeDoc(t, dir, "a.md", validDoc),
		filepath.Join(dir, "missing.md"),
		writeDoc(t, dir, "c.md", validDoc),
	}, nil, Options{Sink: rec})

	success, err := list.Test(context.Background(), false)
	assert.False(t, success)
	assert.ErrorIs(t, err, os.ErrNotExist)

	report, tested := list.Documents()[0].Report()
	assert.True(t, tested, "documents before the unreadable one are tested")
	assert.True(t, report.Valid)

	_, tested = list.Documents()[2].Report()
	assert.False(t, tested)

	kinds := rec.kinds()
	require.NotEmpty(t, kinds)
	assert.Equal(t, models.EventSeparator, kinds[len(kinds)-1])
}

func TestDocumentListSyncLoadError(t *testing.T) {
	dir := t.TempDir()
	goodMain := writeDoc(t, dir, "good.md", "old\n")
	missingMain := writeDoc(t, dir, "other.md", "old\n")
	configured := []models.DocumentDescriptor{
		{Main: goodMain, Sync: writeDoc(t, dir, "good-upstream.md", validDoc)},
		{Main: missingMain, Sync: filepath.Join(dir, "missing-upstream.md")},
	}

	list := NewDocumentList(nil, configured, Options{})

	success, err := list.Sync(context.Background())
	assert.False(t, success)
	assert.ErrorIs(t, err, os.ErrNotExist)

	got, err := os.ReadFile(goodMain)
	require.NoError(t, err)
	assert.Equal(t, validDoc, string(got), "sync copies before the unreadable one are applied")

	got, err = os.ReadFile(missingMain)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(got))
}

func TestDocumentListTestRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validDoc))
	}))
	defer server.Close()

	list := NewDocumentList([]string{server.URL + "/a.md", server.URL + "/b.md"}, nil, Options{})

	success, err := list.Test(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, success)
}

func TestDocumentListSync(t *testing.T) {
	dir := t.TempDir()
	goodMain := writeDoc(t, dir, "good.md", "old\n")
	badMain := writeDoc(t, dir, "bad.md", "old\n")
	configured := []models.DocumentDescriptor{
		{Main: goodMain, Sync: writeDoc(t, dir, "good-upstream.md", validDoc)},
		{Main: badMain, Sync: writeDoc(t, dir, "bad-upstream.md", invalidDoc)},
		{Main: writeDoc(t, dir, "plain.md", "# Plain\n")},
	}

	list := NewDocumentList(nil, configured, Options{})

	success, err := list.Sync(context.Background())
	require.NoError(t, err)
	assert.False(t, success)

	got, err := os.ReadFile(goodMain)
	require.NoError(t, err)
	assert.Equal(t, validDoc, string(got))

	got, err = os.ReadFile(badMain)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(got))
}

func TestDocumentListEdit(t *testing.T) {
	dir := t.TempDir()
	opener := &recordingOpener{}
	configured := []models.DocumentDescriptor{
		{Main: writeDoc(t, dir, "a.md", "x"), Edit: "https://example.com/a"},
		{Main: writeDoc(t, dir, "b.md", "y")},
		{Main: writeDoc(t, dir, "c.md", "z"), Edit: "https://example.com/c"},
	}

	list := NewDocumentList(nil, configured, Options{Opener: opener})

	require.NoError(t, list.Edit(context.Background()))
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/c"}, opener.opened)
}
