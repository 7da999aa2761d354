// Package proto parses the newline-delimited client protocol.
package proto

import "strings"

type Method int

const (
	MethodGet Method = iota
	MethodExit
	MethodSend
	MethodJoin
	MethodCreate
	MethodLeave
	MethodUsers
)

var methodNames = map[string]Method{
	"get":    MethodGet,
	"exit":   MethodExit,
	"send":   MethodSend,
	"join":   MethodJoin,
	"create": MethodCreate,
	"leave":  MethodLeave,
	"users":  MethodUsers,
}

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "get"
	case MethodExit:
		return "exit"
	case MethodSend:
		return "send"
	case MethodJoin:
		return "join"
	case MethodCreate:
		return "create"
	case MethodLeave:
		return "leave"
	case MethodUsers:
		return "users"
	}
	return "unknown"
}

var ErrInvalidRequest = errorString("invalid request")

type errorString string

func (e errorString) Error() string { return string(e) }

// Request is one parsed client command. The argument keeps everything after
// the method keyword, with runs of whitespace collapsed to single spaces.
type Request struct {
	Method   Method
	Argument string
}

// Parse turns one input line (without trailing newline) into a Request.
// Method keywords are case-sensitive lowercase.
func Parse(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Request{}, ErrInvalidRequest
	}

	method, ok := methodNames[fields[0]]
	if !ok {
		return Request{}, ErrInvalidRequest
	}
	arg := strings.Join(fields[1:], " ")

	switch method {
	case MethodSend, MethodJoin, MethodCreate:
		if arg == "" {
			return Request{}, ErrInvalidRequest
		}
	}

	// join carries exactly a room name and a ciphertext token
	if method == MethodJoin && len(fields) != 3 {
		return Request{}, ErrInvalidRequest
	}

	return Request{Method: method, Argument: arg}, nil
}
