package packaging

import (
	"encoding/xml"
	"os"
)

// pom is the subset of the Maven POM the built-in packager emits.
type pom struct {
	XMLName        xml.Name `xml:"project"`
	Xmlns          string   `xml:"xmlns,attr"`
	XmlnsXSI       string   `xml:"xmlns:xsi,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`
	ModelVersion   string   `xml:"modelVersion"`
	GroupID        string   `xml:"groupId"`
	ArtifactID     string   `xml:"artifactId"`
	Version        string   `xml:"version"`
	Packaging      string   `xml:"packaging"`
	Name           string   `xml:"name"`
	Description    string   `xml:"description"`
	URL            string   `xml:"url"`
}

func newPOM(groupID, artifactID, version string) pom {
	return pom{
		Xmlns:          "http://maven.apache.org/POM/4.0.0",
		XmlnsXSI:       "http://www.w3.org/2001/XMLSchema-instance",
		SchemaLocation: "http://maven.apache.org/POM/4.0.0 http://maven.apache.org/xsd/maven-4.0.0.xsd",
		ModelVersion:   "4.0.0",
		GroupID:        groupID,
		ArtifactID:     artifactID,
		Version:        version,
		Packaging:      "jar",
		Name:           "OpenCV",
		Description:    "OpenCV " + version + " Java bindings built with the contrib modules",
		URL:            "https://opencv.org",
	}
}

// write renders p as an indented XML document at path.
func (p pom) write(path string) error {
	data, err := xml.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	data = append([]byte(xml.Header), data...)
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
