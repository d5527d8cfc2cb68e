package light

// TileSize is the default width and height in pixels of each screen-space tile of the
// clustered light grid.
const TileSize = 16

// DepthSlices is the default number of exponential depth slices of the clustered light grid.
const DepthSlices = 24

// MaxLightsPerTile is the maximum number of light indices stored per cluster. If more
// lights overlap a cluster, the excess is refused and logged.
const MaxLightsPerTile = 256

// MaxLights is the default number of light slots the grid can index per frame.
const MaxLights = 1024

// TileCounts computes the number of tiles in each dimension for a given screen
// resolution and tile size.
//
// Parameters:
//   - screenWidth: screen width in pixels
//   - screenHeight: screen height in pixels
//   - tileSize: tile edge in pixels, TileSize if not positive
//
// Returns:
//   - tileCountX: number of tile columns
//   - tileCountY: number of tile rows
func TileCounts(screenWidth, screenHeight, tileSize int) (tileCountX, tileCountY int) {
	if tileSize <= 0 {
		tileSize = TileSize
	}
	tileCountX = (max(screenWidth, 0) + tileSize - 1) / tileSize
	tileCountY = (max(screenHeight, 0) + tileSize - 1) / tileSize
	return
}
