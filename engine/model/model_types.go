package model

// --- Cube tables ---

// CubePositions holds the 36 non-indexed positions of a unit cube centred on the origin,
// six faces of two triangles each. Face winding is mixed, so cube pipelines must not cull.
var CubePositions = [36][3]float32{
	// back
	{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5},
	{0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5}, {-0.5, -0.5, -0.5},
	// front
	{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5},
	{0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, -0.5, 0.5},
	// left
	{-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}, {-0.5, -0.5, -0.5},
	{-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5},
	// right
	{0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}, {0.5, -0.5, -0.5},
	{0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5},
	// bottom
	{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5},
	{0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}, {-0.5, -0.5, -0.5},
	// top
	{-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5},
	{0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5},
}

// CubeUVs holds the texture coordinates matching CubePositions.
var CubeUVs = [36][2]float32{
	{0, 0}, {1, 0}, {1, 1}, {1, 1}, {0, 1}, {0, 0},
	{0, 0}, {1, 0}, {1, 1}, {1, 1}, {0, 1}, {0, 0},
	{1, 0}, {1, 1}, {0, 1}, {0, 1}, {0, 0}, {1, 0},
	{1, 0}, {1, 1}, {0, 1}, {0, 1}, {0, 0}, {1, 0},
	{0, 1}, {1, 1}, {1, 0}, {1, 0}, {0, 0}, {0, 1},
	{0, 1}, {1, 1}, {1, 0}, {1, 0}, {0, 0}, {0, 1},
}

// CubeNormals holds the per-face normals matching CubePositions.
var CubeNormals = [36][3]float32{
	{0, 0, -1}, {0, 0, -1}, {0, 0, -1}, {0, 0, -1}, {0, 0, -1}, {0, 0, -1},
	{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1},
	{-1, 0, 0}, {-1, 0, 0}, {-1, 0, 0}, {-1, 0, 0}, {-1, 0, 0}, {-1, 0, 0},
	{1, 0, 0}, {1, 0, 0}, {1, 0, 0}, {1, 0, 0}, {1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, -1, 0}, {0, -1, 0}, {0, -1, 0}, {0, -1, 0}, {0, -1, 0},
	{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0},
}

// CubeVertices zips the cube tables into GPU vertices.
//
// Returns:
//   - []GPUVertex: 36 vertices
func CubeVertices() []GPUVertex {
	out := make([]GPUVertex, len(CubePositions))
	for i := range CubePositions {
		out[i] = GPUVertex{
			Position: CubePositions[i],
			Normal:   CubeNormals[i],
			TexCoord: CubeUVs[i],
		}
	}
	return out
}
