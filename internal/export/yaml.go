package export

import (
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// YAMLOptions controls the YAML writer.
type YAMLOptions struct {
	// IncludeTiles adds the grid as one flow sequence per row.
	IncludeTiles bool
}

// WriteYAML writes doc with a comment header. Rooms are written as one
// flow mapping per line in acceptance order.
func WriteYAML(w io.Writer, doc MapDocument, opts YAMLOptions) error {
	fmt.Fprintf(w, "# Dungeon %dx%d\n", doc.Width, doc.Height)
	fmt.Fprintf(w, "# Generated with seed: %d\n", doc.Seed)
	fmt.Fprintf(w, "# Room count: %d\n\n", len(doc.Rooms))

	root := &yaml.Node{Kind: yaml.MappingNode}
	addScalar(root, "seed", strconv.FormatInt(doc.Seed, 10), "!!int")
	addScalar(root, "width", strconv.Itoa(doc.Width), "!!int")
	addScalar(root, "height", strconv.Itoa(doc.Height), "!!int")
	addScalar(root, "fingerprint", doc.Fingerprint, "!!str")

	rooms := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range doc.Rooms {
		room := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
		addScalar(room, "index", strconv.Itoa(r.Index), "!!int")
		addScalar(room, "category", r.Category, "!!str")
		addScalar(room, "x", strconv.Itoa(r.X), "!!int")
		addScalar(room, "y", strconv.Itoa(r.Y), "!!int")
		addScalar(room, "width", strconv.Itoa(r.Width), "!!int")
		addScalar(room, "height", strconv.Itoa(r.Height), "!!int")
		rooms.Content = append(rooms.Content, room)
	}
	root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "rooms"}, rooms)

	if opts.IncludeTiles && len(doc.Tiles) > 0 {
		tiles := &yaml.Node{Kind: yaml.SequenceNode}
		for _, row := range doc.Tiles {
			rowNode := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, v := range row {
				rowNode.Content = append(rowNode.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)})
			}
			tiles.Content = append(tiles.Content, rowNode)
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "tiles"}, tiles)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(root); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// WriteYAMLFile writes doc to path, creating parent directories.
func WriteYAMLFile(path string, doc MapDocument, opts YAMLOptions) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteYAML(w, doc, opts)
	})
}

// ReadYAML parses a document written by WriteYAML.
func ReadYAML(r io.Reader) (MapDocument, error) {
	var file struct {
		MapDocument `yaml:",inline"`
		Tiles       [][]int `yaml:"tiles"`
	}
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return MapDocument{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	doc := file.MapDocument
	doc.Tiles = file.Tiles
	return doc, nil
}

func addScalar(node *yaml.Node, key, value, tag string) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value},
	)
}
