// Package response implements the uniform {data, errors} envelope shared
// by every enveloped endpoint. Errors accumulate across middleware and
// handler; the transport status stays 200 and failures are expressed only
// through the errors list.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes kept stable for existing consumers.
const (
	CodeGeneral    = 1
	CodeCustomData = 2
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type Envelope struct {
	Data   any     `json:"data"`
	Errors []Error `json:"errors"`
}

func New() *Envelope {
	return &Envelope{Errors: []Error{}}
}

func (e *Envelope) AddError(code int, message string) {
	e.Errors = append(e.Errors, Error{Code: code, Message: message})
}

func (e *Envelope) AddErrorData(code int, message string, data any) {
	e.Errors = append(e.Errors, Error{Code: code, Message: message, Data: data})
}

func (e *Envelope) HasErrors() bool {
	return len(e.Errors) > 0
}

// Send writes the envelope. Always HTTP 200; error kind is carried in the
// payload, not the status line.
func (e *Envelope) Send(c *gin.Context) {
	c.JSON(http.StatusOK, e)
}

func (e *Envelope) SendData(c *gin.Context, data any) {
	e.Data = data
	e.Send(c)
}

const contextKey = "response.envelope"

// Middleware attaches a fresh envelope to the request so gates, resolvers
// and the handler write into the same error list.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextKey, New())
		c.Next()
	}
}

// For returns the request's envelope, creating one if the middleware did
// not run (tests, stray routes).
func For(c *gin.Context) *Envelope {
	if v, ok := c.Get(contextKey); ok {
		if e, ok := v.(*Envelope); ok {
			return e
		}
	}
	e := New()
	c.Set(contextKey, e)
	return e
}

// Abort records an error, sends the envelope and stops the chain. Used by
// gates and resolvers to reject a request before the handler runs.
func Abort(c *gin.Context, code int, message string) {
	e := For(c)
	e.AddError(code, message)
	e.Send(c)
	c.Abort()
}
