package handler

import "github.com/gin-gonic/gin"

// ErrorBody はエラー応答の内容です。
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta は一覧応答のページング情報です。
type Meta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Response はすべてのエンドポイントが返す共通エンベロープです。
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func respondList(c *gin.Context, status int, data any, meta Meta) {
	c.JSON(status, Response{Success: true, Data: data, Meta: &meta})
}

func respondErrorBody(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{Success: false, Error: &ErrorBody{Code: code, Message: message}})
}
