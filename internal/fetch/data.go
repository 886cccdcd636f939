package fetch

// HTTP boundary

type FetchParam struct {
	pageUrl   string
	userAgent string
	strategy  string
}

func NewFetchParam(pageUrl string, userAgent string, strategy string) FetchParam {
	return FetchParam{
		pageUrl:   pageUrl,
		userAgent: userAgent,
		strategy:  strategy,
	}
}

type PageResult struct {
	url  string
	body []byte
	meta responseMeta
}

func (p *PageResult) URL() string {
	return p.url
}

func (p *PageResult) Body() []byte {
	return p.body
}

func (p *PageResult) Source() string {
	return string(p.body)
}

func (p *PageResult) Code() int {
	return p.meta.statusCode
}

func (p *PageResult) ContentType() string {
	return p.meta.contentType
}

type responseMeta struct {
	statusCode  int
	contentType string
}

// NewPageResultForTest creates a PageResult for testing purposes.
// This allows test packages to construct PageResult values without
// accessing unexported fields directly.
func NewPageResultForTest(url string, body []byte, statusCode int, contentType string) PageResult {
	return PageResult{
		url:  url,
		body: body,
		meta: responseMeta{
			statusCode:  statusCode,
			contentType: contentType,
		},
	}
}
