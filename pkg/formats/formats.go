// Package formats reads and writes the mesh files meshsplit works with:
// Wavefront OBJ for interchange and MSB, a compact binary container holding
// one split mesh with its raw vertex and index buffers.
package formats
