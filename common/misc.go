package common

import (
	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

// NextId draws the next sonyflake id from the given generator. Generation
// only fails when the machine clock runs far backwards, which leaves no
// sane way to continue, so the failure is a panic rather than an error.
func NextId(idWorker *sonyflake.Sonyflake) types.ID {
	id, err := idWorker.NextID()
	if err != nil {
		panic(err)
	}
	return types.ID(id)
}
