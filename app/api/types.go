package api

import (
	"context"

	"github.com/imartinez/kindlefeed/app/database"
	"github.com/imartinez/kindlefeed/app/pipeline"
)

// RunnerInterface triggers pipeline runs on operator request.
type RunnerInterface interface {
	Run(ctx context.Context) (*pipeline.Report, error)
	Running() bool
}

var _ RunnerInterface = (*pipeline.Pipeline)(nil)

// RecipientStoreInterface is the operator surface of the recipient store.
type RecipientStoreInterface interface {
	Add(email string) error
	Remove(email string) error
	List() []string
	Count() int
}

type Handler struct {
	sources    database.SourceRepository
	ledger     database.LedgerRepository
	banTerms   database.BanTermRepository
	recipients RecipientStoreInterface
	runner     RunnerInterface
}

type addSourceRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

type addRecipientRequest struct {
	Email string `json:"email" binding:"required"`
}

type addBanTermRequest struct {
	Term string `json:"term" binding:"required"`
}
