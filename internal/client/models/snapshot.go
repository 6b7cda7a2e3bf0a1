package models

// Table names the five logical tables of a workspace plus the credential
// table. The remote client maps them onto concrete backend table ids.
type Table string

const (
	// TableColumns holds both task and idea columns, told apart by a
	// "kind" field.
	TableColumns         Table = "columns"
	TableTasks           Table = "tasks"
	TableIdeas           Table = "ideas"
	TableDocuments       Table = "documents"
	TableDocumentFolders Table = "documentFolders"
	TableUsers           Table = "users"
)

// SnapshotTables lists the five tables touched by full-snapshot sync, in
// the order they are pushed.
var SnapshotTables = []Table{
	TableColumns, TableTasks, TableIdeas, TableDocuments, TableDocumentFolders,
}

// Snapshot is the full workspace state of one user: the tuple cached
// locally and the unit the full-snapshot sync path replaces remotely.
// Slice order is display order.
type Snapshot struct {
	Columns         []Column   `json:"columns"`
	Tasks           []Card     `json:"tasks"`
	IdeaColumns     []Column   `json:"ideaColumns"`
	Ideas           []Card     `json:"ideas"`
	Documents       []Document `json:"documents"`
	DocumentFolders []Folder   `json:"documentFolders"`
}

// Clone returns a deep copy. The sync engine snapshots state under lock and
// releases the lock before any network call, so copies must not alias.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Columns:         append([]Column(nil), s.Columns...),
		Tasks:           append([]Card(nil), s.Tasks...),
		IdeaColumns:     append([]Column(nil), s.IdeaColumns...),
		Ideas:           append([]Card(nil), s.Ideas...),
		Documents:       append([]Document(nil), s.Documents...),
		DocumentFolders: append([]Folder(nil), s.DocumentFolders...),
	}
	return c
}

// ColumnByID looks a column up across both boards.
func (s *Snapshot) ColumnByID(id string) (*Column, bool) {
	for i := range s.Columns {
		if s.Columns[i].ID == id {
			return &s.Columns[i], true
		}
	}
	for i := range s.IdeaColumns {
		if s.IdeaColumns[i].ID == id {
			return &s.IdeaColumns[i], true
		}
	}
	return nil, false
}

// FolderByID looks a document folder up.
func (s *Snapshot) FolderByID(id string) (*Folder, bool) {
	for i := range s.DocumentFolders {
		if s.DocumentFolders[i].ID == id {
			return &s.DocumentFolders[i], true
		}
	}
	return nil, false
}

// PruneColumn removes a column and every card that referenced it, keeping
// the columnId invariant: no card may dangle.
func (s *Snapshot) PruneColumn(columnID string) {
	keepCols := func(cols []Column) []Column {
		out := cols[:0]
		for _, c := range cols {
			if c.ID != columnID {
				out = append(out, c)
			}
		}
		return out
	}
	keepCards := func(cards []Card) []Card {
		out := cards[:0]
		for _, c := range cards {
			if c.ColumnID != columnID {
				out = append(out, c)
			}
		}
		return out
	}
	s.Columns = keepCols(s.Columns)
	s.IdeaColumns = keepCols(s.IdeaColumns)
	s.Tasks = keepCards(s.Tasks)
	s.Ideas = keepCards(s.Ideas)
}

// PruneFolder removes a folder and every document inside it.
func (s *Snapshot) PruneFolder(folderID string) {
	folders := s.DocumentFolders[:0]
	for _, f := range s.DocumentFolders {
		if f.ID != folderID {
			folders = append(folders, f)
		}
	}
	s.DocumentFolders = folders

	docs := s.Documents[:0]
	for _, d := range s.Documents {
		if d.FolderID != folderID {
			docs = append(docs, d)
		}
	}
	s.Documents = docs
}
