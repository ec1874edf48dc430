package hookstage

import (
	"encoding/json"

	"github.com/prebid/auction-reconciler/hooks/hookanalytics"
)

// HookResult represents the result of executing a concrete hook instance.
type HookResult[T any] struct {
	Reject        bool         // true value indicates rejection of the program execution at the specific stage
	NbrCode       int          // hook must provide NbrCode if the field Reject set to true
	Message       string       // holds arbitrary message added by hook
	ChangeSet     ChangeSet[T] // set of changes the hook wants to apply to the payload in case of successful execution
	Errors        []string
	Warnings      []string
	DebugMessages []string
	AnalyticsTags hookanalytics.Analytics
	ModuleContext ModuleContext // holds values that the module wants to pass to itself at later stages
}

// ModuleInvocationContext holds data passed to the module hook during invocation.
type ModuleInvocationContext struct {
	// AccountID holds the account ID.
	AccountID string
	// AccountConfig represents module config rewritten at the account-level.
	AccountConfig json.RawMessage
	// Endpoint represents the path of the current endpoint.
	Endpoint string
	// DebugEnabled reflects the debug mode of the current invocation.
	DebugEnabled bool
	// ModuleContext holds values that the module passes to itself from the previous stages.
	ModuleContext ModuleContext
}

// ModuleContext holds arbitrary data passed between module hooks at different stages.
type ModuleContext map[string]interface{}
