package repository

import "errors"

// 見つからないエラーを統一
var ErrNotFound = errors.New("not found")
