package logging

import (
	"errors"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

// OperationResult records one operation run. Parameters are redacted by Emit;
// a failure adds the error kind and offending parameter.
func (l *AuditLogger) OperationResult(requestID, operation string, params map[string]any, inputLen int, err error) error {
	meta := map[string]any{"input_bytes": inputLen}
	if len(params) > 0 {
		meta["params"] = params
	}
	event := AuditEvent{
		RequestID: requestID,
		Operation: operation,
		EventType: EventOperationExecuted,
		Decision:  DecisionAllow,
		Metadata:  meta,
	}
	if err != nil {
		event.EventType = EventOperationFailed
		event.Decision = DecisionDeny
		event.Reason = err.Error()
		if kind := cryptoerr.KindOf(err); kind != nil {
			meta["error_kind"] = kind.Error()
		}
		if p := cryptoerr.ParamOf(err); p != "" {
			meta["error_param"] = p
		}
		if errors.Is(err, cryptoerr.ErrAuthentication) {
			meta["authentication_failed"] = true
		}
	}
	return l.Emit(event)
}
