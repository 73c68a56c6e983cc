//go:build sysown_droppanic

package owner

const defaultDropMode = DropPanic
