package knowledge

import (
	"errors"
	"fmt"
)

// Kind 管道阶段错误分类
type Kind string

const (
	KindLoad      Kind = "load"
	KindParse     Kind = "parse"
	KindSplit     Kind = "split"
	KindEmbedding Kind = "embedding"
	KindStore     Kind = "store"
	KindConfig    Kind = "config"
)

// StageError 带阶段分类的摄取错误，单个条目内产生的错误在条目边界被捕获，
// 转成 Fail 状态更新，不会跨条目传播
type StageError struct {
	Kind Kind
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func newStageError(kind Kind, err error) *StageError {
	return &StageError{Kind: kind, Err: err}
}

func NewLoadError(err error) *StageError      { return newStageError(KindLoad, err) }
func NewParseError(err error) *StageError     { return newStageError(KindParse, err) }
func NewSplitError(err error) *StageError     { return newStageError(KindSplit, err) }
func NewEmbeddingError(err error) *StageError { return newStageError(KindEmbedding, err) }
func NewStoreError(err error) *StageError     { return newStageError(KindStore, err) }
func NewConfigError(err error) *StageError    { return newStageError(KindConfig, err) }

// IsKind 判断错误链中是否含有指定分类的阶段错误
func IsKind(err error, kind Kind) bool {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// KindOf 返回错误链中阶段错误的分类，非阶段错误返回空串
func KindOf(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
