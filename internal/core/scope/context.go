package scope

// Identity は認証済み呼び出し元を示す不透明な識別子です。
// 認証そのものは外部のアイデンティティプロバイダが行います。
type Identity struct {
	UserID string
}

// Context は呼び出し元のスコープを表します。
// 一度だけ解決し、以降のすべてのユースケース呼び出しに引数として渡します。
type Context struct {
	CompanyID  string
	EmployeeID string
	IsAdmin    bool
}
