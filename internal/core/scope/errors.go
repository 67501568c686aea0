package scope

import "errors"

var (
	ErrUnauthenticated = errors.New("scope: identity cannot be resolved")
	ErrForbidden       = errors.New("scope: caller lacks required role")
	// ErrNotFound は他社リソースへのアクセスを存在しないリソースと区別せずに返します。
	ErrNotFound = errors.New("scope: resource not found")
)
