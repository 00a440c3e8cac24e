// Package identifier implements the external identifier scheme used by the
// repository layer. A single caller-visible string carries both the store's
// document id and the values of the document's partition key properties:
//
//	documentID                     no partition suffix
//	documentID:valueA|valueB       hierarchical partition values
//	:valueA                        empty document id, caller wants one generated
//
// Encoding and decoding are pure string operations with no I/O.
package identifier

import (
	"strings"

	pkgerrors "partdocs/pkg/errors"
)

const (
	// IDSeparator splits the document id from the partition value suffix
	IDSeparator = ":"
	// ComponentSeparator splits individual partition values in the suffix
	ComponentSeparator = "|"
)

// Codec converts between external identifiers and (document id, partition
// components) pairs. Implementations must be inverse functions of each other
// for inputs free of their delimiter characters.
type Codec interface {
	// Encode builds an external identifier from a document id and ordered
	// partition components. With no components the external id is the
	// document id itself.
	Encode(documentID string, components []string) (string, error)
	// Decode splits an external identifier into the document id and ordered
	// partition components. An identifier without a separator decodes to a
	// single component equal to the identifier itself.
	Decode(externalID string) (documentID string, components []string, err error)
}

// DelimitedCodec is the default Codec. Partition values must not contain the
// delimiter characters; Encode rejects values that do, since the mapping
// would no longer round-trip. Decode cannot detect the corruption and this
// remains a hard constraint on partition property values.
type DelimitedCodec struct{}

// NewDelimitedCodec creates the default delimiter-based codec
func NewDelimitedCodec() *DelimitedCodec {
	return &DelimitedCodec{}
}

// Encode implements Codec
func (c *DelimitedCodec) Encode(documentID string, components []string) (string, error) {
	if documentID == "" {
		return "", pkgerrors.NewValidationError("document id is empty").
			WithCode("MALFORMED_IDENTIFIER")
	}
	if strings.ContainsAny(documentID, IDSeparator+ComponentSeparator) {
		return "", pkgerrors.NewValidationError("document id contains a reserved delimiter").
			WithCode("MALFORMED_IDENTIFIER")
	}
	if len(components) == 0 {
		return documentID, nil
	}
	for _, component := range components {
		if component == "" {
			return "", pkgerrors.NewValidationError("partition component is empty").
				WithCode("MALFORMED_IDENTIFIER")
		}
		if strings.ContainsAny(component, IDSeparator+ComponentSeparator) {
			return "", pkgerrors.NewValidationError("partition component contains a reserved delimiter").
				WithCode("MALFORMED_IDENTIFIER")
		}
	}
	return documentID + IDSeparator + strings.Join(components, ComponentSeparator), nil
}

// Decode implements Codec
func (c *DelimitedCodec) Decode(externalID string) (string, []string, error) {
	if externalID == "" {
		return "", nil, pkgerrors.NewValidationError("identifier is empty").
			WithCode("MALFORMED_IDENTIFIER")
	}

	sep := strings.Index(externalID, IDSeparator)
	if sep < 0 {
		// No partition suffix: the identifier partitions by itself
		return externalID, []string{externalID}, nil
	}

	documentID := externalID[:sep]
	suffix := externalID[sep+1:]
	if suffix == "" {
		return "", nil, pkgerrors.NewValidationError("identifier has an empty partition suffix").
			WithCode("MALFORMED_IDENTIFIER")
	}

	components := strings.Split(suffix, ComponentSeparator)
	for _, component := range components {
		if component == "" {
			return "", nil, pkgerrors.NewValidationError("identifier has an empty partition component").
				WithCode("MALFORMED_IDENTIFIER")
		}
	}

	// documentID may legitimately be empty: the caller is asking the
	// repository to generate one.
	return documentID, components, nil
}
