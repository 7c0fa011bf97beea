package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/briquette/internal/domain/models"
)

const identityField = "_id"

// Serialize prepares a stored document for transport: the store identity field
// becomes a string "id" and every other field passes through untouched.
// The input document is not modified.
func Serialize(doc models.Document) models.Document {
	if doc == nil {
		return nil
	}

	out := make(models.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}

	raw, ok := out[identityField]
	if !ok {
		return out
	}
	delete(out, identityField)
	out["id"] = publicID(raw)
	return out
}

// SerializeAll applies Serialize to every document.
func SerializeAll(docs []models.Document) []models.Document {
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, Serialize(d))
	}
	return out
}

// publicID renders id as a string, keeping the raw value when no string form exists.
func publicID(id any) any {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case int, int32, int64, float64:
		return fmt.Sprint(v)
	default:
		return v
	}
}
