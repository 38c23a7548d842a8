package httpclient

import (
	"github.com/kbukum/invstream/provider"
)

// compile-time assertions
var _ provider.RequestResponse[Request, *Response] = (*Adapter)(nil)
var _ provider.Closeable = (*Adapter)(nil)
