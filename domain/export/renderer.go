package export

import (
	"bytes"
	"cleanops/common"
	"cleanops/domain/report"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"os"
)

// HttpRenderer posts the report to the external rendering service and
// receives the PDF bytes back.
type HttpRenderer struct {
	RenderURL string
}

func NewHttpRendererFromEnv() (*HttpRenderer, error) {
	url := os.ExpandEnv(os.Getenv("RENDERER_URL"))
	if url == "" {
		return nil, errors.New("environment variable RENDERER_URL is not set")
	}
	return &HttpRenderer{RenderURL: url}, nil
}

func (r *HttpRenderer) RenderPDF(rec *report.WorkReport) ([]byte, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(r.RenderURL, "application/json;charset=UTF-8", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !common.HttpStatusIsSuccess(resp.StatusCode) {
		return nil, errors.New("renderer answered status " + resp.Status)
	}
	return content, nil
}
