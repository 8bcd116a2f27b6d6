package errors

var (
	ErrUnknown                  = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument          = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrNotFound                 = New(ERR_NOT_FOUND, "not found")
	ErrProcessing               = New(ERR_PROCESSING, "error processing")
	ErrConfiguration            = New(ERR_CONFIGURATION, "configuration error")
	ErrContextCanceled          = New(ERR_CONTEXT_CANCELED, "context canceled")
	ErrError                    = New(ERR_ERROR, "generic error")
	ErrTxNotFound               = New(ERR_TX_NOT_FOUND, "tx not found")
	ErrTxInvalid                = New(ERR_TX_INVALID, "tx invalid")
	ErrServiceUnavailable       = New(ERR_SERVICE_UNAVAILABLE, "service unavailable")
	ErrServiceError             = New(ERR_SERVICE_ERROR, "service error")
	ErrStorageUnavailable       = New(ERR_STORAGE_UNAVAILABLE, "storage unavailable")
	ErrStorageError             = New(ERR_STORAGE_ERROR, "storage error")
	ErrNetworkError             = New(ERR_NETWORK_ERROR, "network error")
	ErrNetworkTimeout           = New(ERR_NETWORK_TIMEOUT, "network timeout")
	ErrNetworkConnectionRefused = New(ERR_NETWORK_CONNECTION_REFUSED, "connection refused")
	ErrNetworkInvalidResponse   = New(ERR_NETWORK_INVALID_RESPONSE, "invalid response")
	ErrFetchFailed              = New(ERR_FETCH_FAILED, "fetch failed")
	ErrInvalidPort              = New(ERR_INVALID_PORT, "invalid port")
	ErrCacheCorrupt             = New(ERR_CACHE_CORRUPT, "cache corrupt")
	ErrGraphInvariant           = New(ERR_GRAPH_INVARIANT, "graph invariant violated")
	ErrLayoutDesync             = New(ERR_LAYOUT_DESYNC, "layout buffer out of sync")
	ErrWorkspaceVersion         = New(ERR_WORKSPACE_VERSION, "unsupported workspace version")
)

// errors initialization functions

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}
func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}
func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}
func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}
func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}
func NewContextCanceledError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT_CANCELED, message, params...)
}
func NewError(message string, params ...interface{}) error {
	return New(ERR_ERROR, message, params...)
}
func NewTxNotFoundError(message string, params ...interface{}) error {
	return New(ERR_TX_NOT_FOUND, message, params...)
}
func NewTxInvalidError(message string, params ...interface{}) error {
	return New(ERR_TX_INVALID, message, params...)
}
func NewServiceUnavailableError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_UNAVAILABLE, message, params...)
}
func NewServiceError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_ERROR, message, params...)
}
func NewStorageUnavailableError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_UNAVAILABLE, message, params...)
}
func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}
func NewNetworkError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_ERROR, message, params...)
}
func NewNetworkTimeoutError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_TIMEOUT, message, params...)
}
func NewNetworkConnectionRefusedError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_CONNECTION_REFUSED, message, params...)
}
func NewNetworkInvalidResponseError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_INVALID_RESPONSE, message, params...)
}
func NewInvalidPortError(message string, params ...interface{}) error {
	return New(ERR_INVALID_PORT, message, params...)
}
func NewCacheCorruptError(message string, params ...interface{}) error {
	return New(ERR_CACHE_CORRUPT, message, params...)
}
func NewGraphInvariantError(message string, params ...interface{}) error {
	return New(ERR_GRAPH_INVARIANT, message, params...)
}
func NewLayoutDesyncError(message string, params ...interface{}) error {
	return New(ERR_LAYOUT_DESYNC, message, params...)
}
func NewWorkspaceVersionError(message string, params ...interface{}) error {
	return New(ERR_WORKSPACE_VERSION, message, params...)
}
