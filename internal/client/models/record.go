package models

// Fields is the free-form field map of one remote table record. The remote
// table service stores JSON, so numbers come back as float64 and booleans
// sometimes as 0/1; the accessors below normalize both directions.
type Fields map[string]any

func fieldString(f Fields, key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

func fieldBool(f Fields, key string) bool {
	switch v := f[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}

func fieldInt64(f Fields, key string) int64 {
	switch v := f[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// SortOrder extracts the explicit ordering field written alongside every
// snapshot record.
func (f Fields) SortOrder() int64 { return fieldInt64(f, "sortOrder") }

// EntityID extracts the client-generated id, distinct from the backend
// record id.
func (f Fields) EntityID() string { return fieldString(f, "id") }

func (c Column) Fields(userID string, sortOrder int) Fields {
	return Fields{
		"userId":             userID,
		"id":                 c.ID,
		"kind":               string(c.Kind),
		"title":              c.Title,
		"isEncrypted":        c.IsEncrypted,
		"encryptionVerifier": c.EncryptionVerifier,
		"sortOrder":          sortOrder,
	}
}

func ColumnFromFields(recordID string, f Fields) Column {
	kind := ColumnKind(fieldString(f, "kind"))
	if kind == "" {
		// Rows written before the two boards shared one table carried no
		// kind and were all task columns.
		kind = ColumnKindTask
	}
	return Column{
		ID:                 f.EntityID(),
		RemoteRecordID:     recordID,
		Kind:               kind,
		Title:              fieldString(f, "title"),
		IsEncrypted:        fieldBool(f, "isEncrypted"),
		EncryptionVerifier: fieldString(f, "encryptionVerifier"),
	}
}

func (c Card) Fields(userID string, sortOrder int) Fields {
	return Fields{
		"userId":        userID,
		"id":            c.ID,
		"columnId":      c.ColumnID,
		"content":       c.Content,
		"completed":     c.Completed,
		"isAiGenerated": c.IsAIGenerated,
		"sortOrder":     sortOrder,
	}
}

func CardFromFields(recordID string, f Fields) Card {
	return Card{
		ID:             f.EntityID(),
		RemoteRecordID: recordID,
		ColumnID:       fieldString(f, "columnId"),
		Content:        fieldString(f, "content"),
		Completed:      fieldBool(f, "completed"),
		IsAIGenerated:  fieldBool(f, "isAiGenerated"),
	}
}

func (d Document) Fields(userID string, sortOrder int) Fields {
	return Fields{
		"userId":             userID,
		"id":                 d.ID,
		"folderId":           d.FolderID,
		"title":              d.Title,
		"content":            d.Content,
		"createdAt":          d.CreatedAt,
		"updatedAt":          d.UpdatedAt,
		"isEncrypted":        d.IsEncrypted,
		"encryptionVerifier": d.EncryptionVerifier,
		"sortOrder":          sortOrder,
	}
}

func DocumentFromFields(recordID string, f Fields) Document {
	return Document{
		ID:                 f.EntityID(),
		RemoteRecordID:     recordID,
		FolderID:           fieldString(f, "folderId"),
		Title:              fieldString(f, "title"),
		Content:            fieldString(f, "content"),
		CreatedAt:          fieldInt64(f, "createdAt"),
		UpdatedAt:          fieldInt64(f, "updatedAt"),
		IsEncrypted:        fieldBool(f, "isEncrypted"),
		EncryptionVerifier: fieldString(f, "encryptionVerifier"),
	}
}

func (fo Folder) Fields(userID string, sortOrder int) Fields {
	return Fields{
		"userId":             userID,
		"id":                 fo.ID,
		"title":              fo.Title,
		"isEncrypted":        fo.IsEncrypted,
		"encryptionVerifier": fo.EncryptionVerifier,
		"sortOrder":          sortOrder,
	}
}

func FolderFromFields(recordID string, f Fields) Folder {
	return Folder{
		ID:                 f.EntityID(),
		RemoteRecordID:     recordID,
		Title:              fieldString(f, "title"),
		IsEncrypted:        fieldBool(f, "isEncrypted"),
		EncryptionVerifier: fieldString(f, "encryptionVerifier"),
	}
}

func (c Credential) Fields() Fields {
	return Fields{
		"userId":       c.UserID,
		"passwordHash": c.PasswordHash,
		"createdAt":    c.CreatedAt,
	}
}

func CredentialFromFields(f Fields) Credential {
	return Credential{
		UserID:       fieldString(f, "userId"),
		PasswordHash: fieldString(f, "passwordHash"),
		CreatedAt:    fieldInt64(f, "createdAt"),
	}
}
