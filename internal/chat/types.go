package chat

var (
	ErrRoomInUse       = errorString("room in use")
	ErrNoRoomFound     = errorString("room not found")
	ErrInvalidPassword = errorString("invalid password")
	ErrRoomClosed      = errorString("room closed")
)

type errorString string

func (e errorString) Error() string { return string(e) }

// Cipher decrypts a handshake token under a room password. The production
// implementation lives in internal/crypto; tests may substitute their own.
type Cipher interface {
	Decrypt(password, token string) (string, error)
}
