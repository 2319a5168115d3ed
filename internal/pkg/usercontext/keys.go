package usercontext

// Locals keys shared by middlewares, controllers and templates
const (
	LocalsKey        = "USER_CONTEXT"
	KeyFromProtected = "from_protected"
	KeyIsStaff       = "isStaff"
)
