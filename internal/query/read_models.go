package query

// Re-export read models from readmodel package for handlers
import "github.com/example/commerce-policy/internal/readmodel"

type ProductReviewSummary = readmodel.ProductReviewSummary
