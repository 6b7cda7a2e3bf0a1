package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Columns: []Column{
			{ID: "c1", Kind: ColumnKindTask, Title: "Inbox"},
			{ID: "c2", Kind: ColumnKindTask, Title: "Done"},
		},
		Tasks: []Card{
			{ID: "t1", ColumnID: "c1", Content: "Buy milk"},
			{ID: "t2", ColumnID: "c2", Content: "Ship it", Completed: true},
		},
		IdeaColumns: []Column{
			{ID: "i1", Kind: ColumnKindIdea, Title: "Diary", IsEncrypted: true},
		},
		Ideas: []Card{
			{ID: "d1", ColumnID: "i1", Content: "secret thought"},
		},
		DocumentFolders: []Folder{{ID: "f1", Title: "Notes"}},
		Documents: []Document{
			{ID: "doc1", FolderID: "f1", Title: "Plan"},
			{ID: "doc2", Title: "Root doc"},
		},
	}
}

func TestSnapshot_Clone_DoesNotAlias(t *testing.T) {
	s := sampleSnapshot()
	c := s.Clone()

	c.Tasks[0].Content = "changed"
	c.Columns = append(c.Columns, Column{ID: "c3"})

	assert.Equal(t, "Buy milk", s.Tasks[0].Content)
	assert.Len(t, s.Columns, 2)
}

func TestSnapshot_PruneColumn_CascadesCards(t *testing.T) {
	s := sampleSnapshot()
	s.PruneColumn("c1")

	require.Len(t, s.Columns, 1)
	assert.Equal(t, "c2", s.Columns[0].ID)
	// No dangling columnId references survive.
	for _, task := range s.Tasks {
		assert.NotEqual(t, "c1", task.ColumnID)
	}
	require.Len(t, s.Tasks, 1)
}

func TestSnapshot_PruneColumn_IdeaBoard(t *testing.T) {
	s := sampleSnapshot()
	s.PruneColumn("i1")

	assert.Empty(t, s.IdeaColumns)
	assert.Empty(t, s.Ideas)
}

func TestSnapshot_PruneFolder_CascadesDocuments(t *testing.T) {
	s := sampleSnapshot()
	s.PruneFolder("f1")

	assert.Empty(t, s.DocumentFolders)
	require.Len(t, s.Documents, 1)
	assert.Equal(t, "doc2", s.Documents[0].ID)
}

func TestSnapshot_ColumnByID_BothBoards(t *testing.T) {
	s := sampleSnapshot()

	col, ok := s.ColumnByID("c2")
	require.True(t, ok)
	assert.Equal(t, "Done", col.Title)

	col, ok = s.ColumnByID("i1")
	require.True(t, ok)
	assert.Equal(t, ColumnKindIdea, col.Kind)

	_, ok = s.ColumnByID("missing")
	assert.False(t, ok)
}

func TestFields_RoundTrip(t *testing.T) {
	card := Card{ID: "t1", ColumnID: "c1", Content: "x", Completed: true}
	f := card.Fields("alice", 3)

	assert.Equal(t, "alice", f["userId"])
	assert.EqualValues(t, 3, f.SortOrder())

	got := CardFromFields("rec9", f)
	assert.Equal(t, "rec9", got.RemoteRecordID)
	card.RemoteRecordID = "rec9"
	assert.Equal(t, card, got)
}

func TestFields_JSONNumericShapes(t *testing.T) {
	// Values decoded from JSON arrive as float64.
	f := Fields{"id": "d1", "completed": float64(1), "sortOrder": float64(7), "createdAt": float64(1700000000000)}
	assert.True(t, fieldBool(f, "completed"))
	assert.EqualValues(t, 7, f.SortOrder())
	assert.EqualValues(t, 1700000000000, fieldInt64(f, "createdAt"))
}
