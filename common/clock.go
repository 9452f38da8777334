package common

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

// BusinessLocation is the single canonical time zone all work dates and
// clock times of reports are interpreted in.
var BusinessLocation *time.Location

func init() {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		panic(err)
	}
	BusinessLocation = loc
}

var CurrentTimestampFunc = CurrentTimestamp

func CurrentTimestamp() types.Timestamp {
	return types.CurrentTimestamp()
}

// Today returns the current business date as an ISO date string.
func Today() string {
	return time.Now().In(BusinessLocation).Format("2006-01-02")
}
