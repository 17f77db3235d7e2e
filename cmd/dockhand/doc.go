// Command dockhand runs docker builds, pushes and other docker commands while
// recording their progress, so an interrupted or failed operation can be
// inspected and retried.
//
// Run commands (build, push, pull, exec) pass their arguments to docker
// unchanged; dockhand's own flags go before the subcommand:
//
//	dockhand --quiet build -t example/app:1.0 .
//	dockhand push example/app:1.0
//	dockhand exec -- buildx build --platform linux/arm64 -t example/app:arm .
//
// Inspection commands read the progress file and history ledger: status, show,
// history, forget, clear and doctor.
package main
