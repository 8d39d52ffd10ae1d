package backend

// User is the authenticated-user record returned by the backend. CompanyID
// denotes the tenant the session is currently scoped to; an empty CompanyID
// means the account is not tenant-scoped.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role,omitempty"`
	CompanyID    string `json:"companyId,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// Company is a tenant the user may act on behalf of.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// AuthenticateResult is the identity probe response. It reports tenant
// membership without establishing a session.
type AuthenticateResult struct {
	Success                  bool      `json:"success"`
	User                     *User     `json:"user,omitempty"`
	Companies                []Company `json:"companies,omitempty"`
	RequiresCompanySelection bool      `json:"requiresCompanySelection"`
	NeedsCompanyCreation     bool      `json:"needsCompanyCreation"`
}

// LoginRequest is the tenant-resolved login call. CompanyID and UserID are
// omitted from the wire body when empty (the single-tenant account path).
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	PortalType string `json:"portalType,omitempty"`
	CompanyID  string `json:"companyId,omitempty"`
	UserID     string `json:"userId,omitempty"`
}

// LoginResult carries the issued token material and the tenant-scoped user
// object. RefreshToken and JTI are optional on older backend versions.
type LoginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	JTI          string `json:"jti,omitempty"`
	User         *User  `json:"user"`
}

type userEnvelope struct {
	User *User `json:"user"`
}

type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
