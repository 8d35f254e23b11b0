package worker

import (
	log "github.com/freundallein/queued/chassis/logging"

	"github.com/freundallein/queued/chassis/monkey"
	"github.com/freundallein/queued/chassis/protocol"
)

// Worker methods
const (
	DUMMY = "dummy"
	ECHO  = "echo"
)

// HandleDummy - ...
func HandleDummy(request *protocol.Request) *protocol.Response {
	log.Info("processing_task: id=", request.ID, " attempt=", request.Params["attempt"])
	response := &protocol.Response{
		ID: request.ID,
	}
	err := monkey.RandomizeError(nil)
	if err != nil {
		response.Error = map[string]string{"code": "5050", "message": "random error", "attempt": request.Params["attempt"]}
	} else {
		response.Result = map[string]string{"result": "success", "attempt": request.Params["attempt"]}
	}
	return response
}

// HandleEcho - mirrors the task params back as the result
func HandleEcho(request *protocol.Request) *protocol.Response {
	response := &protocol.Response{
		ID:     request.ID,
		Result: map[string]string{"result": "success"},
	}
	for key, value := range request.Params {
		response.Result[key] = value
	}
	return response
}
