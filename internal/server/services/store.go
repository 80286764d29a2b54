package services

import (
	"errors"

	"github.com/dmitrijs2005/tipjar/internal/common"
)

// storeErr keeps not-found as is and marks every other store failure,
// timeouts included, as a retryable upstream error.
func storeErr(op string, err error) error {
	if err == nil || errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return common.NewUpstreamError(op, err)
}
