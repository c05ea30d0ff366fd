package entities

import (
	"database/sql/driver"
	"encoding/json"

	"gorm.io/datatypes"

	"parlance/services/chat-api/internal/domain/conversation"
)

// ===============================================
// JSON Types for GORM
// ===============================================

// JSONMap is a custom type for map[string]string stored as JSON
type JSONMap map[string]string

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func marshalAttachments(attachments []conversation.Attachment) (datatypes.JSON, error) {
	if len(attachments) == 0 {
		return nil, nil
	}
	bytes, err := json.Marshal(attachments)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(bytes), nil
}

func unmarshalAttachments(raw datatypes.JSON) ([]conversation.Attachment, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var attachments []conversation.Attachment
	if err := json.Unmarshal(raw, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}
