//go:build amd64 && !purego

package simdops

import "golang.org/x/sys/cpu"

func init() {
	hasVectorUnit = cpu.X86.HasAVX2 && cpu.X86.HasFMA
}
