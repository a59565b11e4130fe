package web

import (
	"encoding/json"
	"net/http"

	"github.com/sweeney/tile-floor/internal/command"
)

// ResponseFrame wraps a command reply on the websocket so it can be told
// apart from status frames.
type ResponseFrame struct {
	Response command.Response `json:"response"`
}

func responseFrame(resp command.Response) []byte {
	data, _ := json.Marshal(ResponseFrame{Response: resp})
	return data
}

func writeResponse(w http.ResponseWriter, resp command.Response) {
	code := http.StatusOK
	if !resp.OK {
		code = http.StatusBadRequest
	}
	writeResponseStatus(w, code, resp)
}

func writeResponseStatus(w http.ResponseWriter, code int, resp command.Response) {
	data, _ := json.Marshal(resp)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}
