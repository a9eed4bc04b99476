package bind_group_provider

// InstanceBinding targets a provider's instance buffer instead of a bind group buffer.
const InstanceBinding = -1

// BufferWrite is one queued upload into a provider's buffer. Writes past the end of the
// buffer are dropped by the renderer with a warning.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Write returns a BufferWrite of data at the start of binding.
func Write(p BindGroupProvider, binding int, data []byte) BufferWrite {
	return BufferWrite{Provider: p, Binding: binding, Data: data}
}
