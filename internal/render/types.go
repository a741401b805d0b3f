package render

// File is one rendered output ready for upload.
type File struct {
	Format              string
	ContentType         string
	FileName            string
	Data                []byte
	RenderingDurationMs int32
	PageCount           *int32
}
