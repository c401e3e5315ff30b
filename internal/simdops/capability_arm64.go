//go:build arm64 && !purego

package simdops

import "golang.org/x/sys/cpu"

func init() {
	hasVectorUnit = cpu.ARM64.HasASIMD
}
