package domain

// Profile carries the identity attributes attached to an authenticated
// session. Only the email is guaranteed; the rest depends on what the
// identity provider exposes.
type Profile struct {
	Email       string
	DisplayName string
	JobTitle    string
	Department  string
}

// Person is a directory search result used to prefill assignment fields.
// PrimaryEmail is preferred; directories that leave it empty fall back to the
// principal name, which resolution handles in the directory client.
type Person struct {
	Name       string
	Email      string
	JobTitle   string
	Department string
}
