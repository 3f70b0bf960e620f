package notification

import "go.uber.org/fx"

// WorkerModule is loaded by the worker binary only; the API side just
// enqueues the task payloads defined in this package.
var WorkerModule = fx.Module("notification.worker",
	fx.Provide(NewWorker),
	fx.Invoke(RegisterWorker),
)
