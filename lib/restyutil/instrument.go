package restyutil

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// InstrumentOutput receives a full dump of every http exchange made by a client.
type InstrumentOutput interface {
	Write(id string, contents string)
}

// DumpResponses writes every response the client receives to output, `output` can be nil,
// in which case this is a no-op.
func DumpResponses(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}

	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := fmt.Sprintf("%04d.txt", atomic.AddUint64(&idcounter, 1))
		output.Write(id, formatHttpMessage(res))
		slog.Debug(
			"dumped http message",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"message_id", id,
		)
		return nil
	})
}
