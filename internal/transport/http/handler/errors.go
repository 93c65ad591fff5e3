package handler

const (
	errInternalServer  = "Internal server error"
	errNotRegistered   = "You are not registered"
	errCodeNotFound    = "Code does not exist"
	errCodeWrongOwner  = "This verification code is not correct. please try again."
	errCodeExpired     = "User authentication failed, verification code expired"
	errAccountInactive = "This account is not allowed to login"
	errSomethingWrong  = "something went wrong"

	msgCodeSent      = "Verification code has been sent successfully"
	msgAuthenticated = "User authentication successful"
)
