package graph

import (
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
)

type FetchStatus uint8

const (
	Unfetched FetchStatus = iota
	Pending
	Loaded
	Failed
)

func (s FetchStatus) String() string {
	switch s {
	case Unfetched:
		return "unfetched"
	case Pending:
		return "pending"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FetchState is unfetched, pending, loaded with a detail record, or failed with an error.
// It only changes through the transition methods below.
type FetchState struct {
	status FetchStatus
	detail *model.Transaction
	err    error
}

func (s FetchState) Status() FetchStatus {
	return s.status
}

func (s FetchState) Detail() *model.Transaction {
	return s.detail
}

func (s FetchState) Err() error {
	return s.err
}

// request moves unfetched and failed states to pending.
func (s FetchState) request() (FetchState, error) {
	switch s.status {
	case Unfetched, Failed:
		return FetchState{status: Pending}, nil
	case Pending, Loaded:
		return s, errors.NewGraphInvariantError("cannot request a fetch in state %s", s.status)
	default:
		return s, errors.NewGraphInvariantError("unknown fetch state %d", s.status)
	}
}

// complete moves a pending state to loaded.
func (s FetchState) complete(tx *model.Transaction) (FetchState, error) {
	switch s.status {
	case Pending:
		if tx == nil {
			return s, errors.NewGraphInvariantError("cannot load a nil transaction")
		}

		return FetchState{status: Loaded, detail: tx}, nil
	case Unfetched, Loaded, Failed:
		return s, errors.NewGraphInvariantError("cannot complete a fetch in state %s", s.status)
	default:
		return s, errors.NewGraphInvariantError("unknown fetch state %d", s.status)
	}
}

// fail moves a pending state to failed.
func (s FetchState) fail(err error) (FetchState, error) {
	switch s.status {
	case Pending:
		return FetchState{status: Failed, err: err}, nil
	case Unfetched, Loaded, Failed:
		return s, errors.NewGraphInvariantError("cannot fail a fetch in state %s", s.status)
	default:
		return s, errors.NewGraphInvariantError("unknown fetch state %d", s.status)
	}
}

// reset returns a pending state to unfetched, when its request was canceled.
func (s FetchState) reset() FetchState {
	if s.status == Pending {
		return FetchState{status: Unfetched}
	}

	return s
}
