package router

import (
	"errors"
	"fmt"
)

var (
	// ErrContentUnavailableOffline matches a request for content that is not
	// cached while the remote service is unreachable.
	ErrContentUnavailableOffline = errors.New("content unavailable offline")

	// ErrRemote matches any failure of the remote content service.
	ErrRemote = errors.New("remote content service failed")
)

type ContentUnavailableOfflineError struct {
	Hash string
}

func (e *ContentUnavailableOfflineError) Error() string {
	return fmt.Sprintf("%s is not cached and the remote service is offline", e.Hash)
}

func (e *ContentUnavailableOfflineError) Is(target error) bool {
	return target == ErrContentUnavailableOffline
}

type RemoteError struct {
	Op   string
	Hash string
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Hash == "" {
		return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("remote %s %s: %v", e.Op, e.Hash, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}
