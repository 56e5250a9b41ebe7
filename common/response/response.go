// common/response/response.go
package response

import (
	"encoding/json"
	"net/http"

	"github.com/campushub/session-system/common/autherr"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// JSON пишет успешный ответ.
func JSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Error пишет типизированную ошибку жизненного цикла. Причина (cause)
// в тело не попадает: наружу уходят только код и сообщение.
func Error(w http.ResponseWriter, err error) {
	e := autherr.From(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	res := errorBody{}
	res.Error.Code = string(e.Code)
	res.Error.Message = e.Message
	_ = json.NewEncoder(w).Encode(res)
}

func BadRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	res := errorBody{}
	res.Error.Code = "BAD_REQUEST"
	res.Error.Message = msg
	_ = json.NewEncoder(w).Encode(res)
}
