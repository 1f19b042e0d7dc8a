package family

import "github.com/matzehuels/kinboard/pkg/geometry"

// Seed returns the starter tree written by "kinboard init": a patriarch and
// his son, the son flagged as self.
func Seed() Snapshot {
	return Snapshot{
		Members: []Member{
			{
				ID:        "1",
				Name:      "Arthur Robinson",
				NameZh:    "亚瑟·罗宾逊",
				Role:      "Patriarch",
				BirthDate: "1940",
				Location:  "London, UK",
				Avatar:    "https://picsum.photos/id/1025/200/200",
				Gender:    Male,
				X:         500,
				Y:         150,
			},
			{
				ID:        "2",
				Name:      "John Robinson",
				NameZh:    "约翰·罗宾逊",
				Role:      "Father",
				BirthDate: "1970",
				Location:  "New York, USA",
				Avatar:    "https://picsum.photos/id/1005/200/200",
				Gender:    Male,
				IsSelf:    true,
				X:         500,
				Y:         450,
			},
		},
		Connections: []Connection{
			{
				ID:           "c1",
				SourceID:     "1",
				TargetID:     "2",
				SourceHandle: geometry.HandleBottom,
				TargetHandle: geometry.HandleTop,
				Label:        "Son",
				LabelZh:      "儿子",
			},
		},
	}
}
