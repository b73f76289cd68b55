package api

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Sentinel errors shared by every feature package. Handlers translate these
// into the wire envelope; everything else is logged and collapsed into
// ErrServer so transport detail never reaches a client.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrBadRequest      = errors.New("invalid request")
	ErrServer          = errors.New("Server error. Try again.")
)

// Client-facing messages. Signin failures share one message so the response
// never reveals whether the username exists.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgUserAlreadyExists  = "The user already exist"
	MsgServerError        = "Server error. Try again."
)

// Claims represents the custom claims embedded in the session token.
type Claims struct {
	UserID      string `json:"userId"`
	UID         int64  `json:"uId"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	AvatarColor string `json:"avatarColor"`
	jwt.RegisteredClaims
}

// AuthRecord is the durable credential: the (username, email) pair is unique
// across all records and uniqueness is always checked against the durable
// store, never the cache. The record travels on the auth queue as JSON but
// never crosses the HTTP boundary; responses carry UserDocument only.
type AuthRecord struct {
	ID           uuid.UUID `json:"id"`
	UID          int64     `json:"uId"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	AvatarColor  string    `json:"avatarColor"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NotificationSettings are the per-user notification toggles, all on by default.
type NotificationSettings struct {
	Messages  bool `json:"messages"`
	Reactions bool `json:"reactions"`
	Comments  bool `json:"comments"`
	Follows   bool `json:"follows"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{Messages: true, Reactions: true, Comments: true, Follows: true}
}

type SocialLinks struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Twitter   string `json:"twitter"`
	Youtube   string `json:"youtube"`
	Linkedin  string `json:"linkedin"`
}

// UserDocument is the profile entity: durable in postgres and projected into
// the cache as a flat field list. Counters never go negative; the repository
// clamps them on write.
type UserDocument struct {
	ID             uuid.UUID            `json:"id"`
	AuthID         uuid.UUID            `json:"authId"`
	UID            int64                `json:"uId"`
	Username       string               `json:"username"`
	Email          string               `json:"email"`
	AvatarColor    string               `json:"avatarColor"`
	ProfilePicture string               `json:"profilePicture"`
	Work           string               `json:"work"`
	Location       string               `json:"location"`
	School         string               `json:"school"`
	Quote          string               `json:"quote"`
	BgImageID      string               `json:"bgImageId"`
	BgImageVersion string               `json:"bgImageVersion"`
	PostsCount     int                  `json:"postsCount"`
	FollowersCount int                  `json:"followersCount"`
	FollowingCount int                  `json:"followingCount"`
	Blocked        []uuid.UUID          `json:"blocked"`
	BlockedBy      []uuid.UUID          `json:"blockedBy"`
	Notifications  NotificationSettings `json:"notifications"`
	Social         SocialLinks          `json:"social"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// SignUpRequest is the signup payload. The avatar image arrives as a data
// URL and is pushed to object storage before any cache or queue work.
type SignUpRequest struct {
	Username    string `json:"username" validate:"required,min=4,max=16"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=4,max=32"`
	AvatarColor string `json:"avatarColor" validate:"required"`
	AvatarImage string `json:"avatarImage" validate:"required"`
}

type SignInRequest struct {
	Username string `json:"username" validate:"required,min=4,max=16"`
	Password string `json:"password" validate:"required,min=4,max=32"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=4,max=32"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// AuthResponse is the success envelope for signup and signin.
type AuthResponse struct {
	Message string        `json:"message"`
	User    *UserDocument `json:"user"`
	Token   string        `json:"token"`
}
