package dynamo

import "github.com/go-newsletter-signup/internal/domain"

// Condition expressions shared by the subscriber writes. #pk is always bound
// to the partition key attribute.
const (
	pkPlaceholder    = "#pk"
	condKeyAbsent    = "attribute_not_exists(#pk)"
	condKeyPresent   = "attribute_exists(#pk)"
	condStillPending = "attribute_exists(#pk) AND #validated = :false"
	partitionKey     = domain.FieldEmail
)
