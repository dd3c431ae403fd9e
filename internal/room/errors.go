package room

import "errors"

var (
	ErrNameTooLong     = errors.New("room: name exceeds 32 characters")
	ErrInvalidShape    = errors.New("room: shape not in enum")
	ErrInvalidPigment  = errors.New("room: pigment components must be in [0,1]")
	ErrMessageTooLarge = errors.New("room: input message exceeds MAX_MESSAGE_SIZE")
	ErrSessionUnknown  = errors.New("room: unknown session id")
	ErrChildPoolFull   = errors.New("room: owner's auxiliary-entity cap reached")
	ErrRateLimited     = errors.New("room: input rate limit exceeded")
)
