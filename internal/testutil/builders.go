package testutil

import (
	"fmt"

	"github.com/target/translation-queue/internal/domain/model"
)

// EnqueueRequestBuilder provides a fluent interface for building EnqueueRequest values for testing.
type EnqueueRequestBuilder struct {
	req model.EnqueueRequest
}

// NewEnqueueRequest creates a builder for a post content job with sensible defaults.
func NewEnqueueRequest() *EnqueueRequestBuilder {
	return &EnqueueRequestBuilder{
		req: model.EnqueueRequest{
			ObjectType: model.ObjectTypePost,
			ObjectID:   "1",
			Field:      "post_content",
			HashSource: "hash-1",
		},
	}
}

// WithType sets the object type.
func (b *EnqueueRequestBuilder) WithType(objectType model.ObjectType) *EnqueueRequestBuilder {
	b.req.ObjectType = objectType
	return b
}

// WithObjectID sets the object identifier.
func (b *EnqueueRequestBuilder) WithObjectID(id string) *EnqueueRequestBuilder {
	b.req.ObjectID = id
	return b
}

// WithField sets the field reference.
func (b *EnqueueRequestBuilder) WithField(field string) *EnqueueRequestBuilder {
	b.req.Field = field
	return b
}

// WithHash sets the source hash.
func (b *EnqueueRequestBuilder) WithHash(hash string) *EnqueueRequestBuilder {
	b.req.HashSource = hash
	return b
}

// Build returns the request.
func (b *EnqueueRequestBuilder) Build() model.EnqueueRequest {
	return b.req
}

// PostFields returns one request per field of a single post, all with distinct hashes.
func PostFields(objectID string, fields ...string) []model.EnqueueRequest {
	out := make([]model.EnqueueRequest, 0, len(fields))
	for i, f := range fields {
		out = append(out, NewEnqueueRequest().
			WithObjectID(objectID).
			WithField(f).
			WithHash(fmt.Sprintf("hash-%s-%d", objectID, i)).
			Build())
	}
	return out
}
