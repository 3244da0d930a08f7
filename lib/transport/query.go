package transport

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
)

// queryFromBody flattens a GET request body into query parameters. Nil
// values are skipped and arrays become repeated keys.
func queryFromBody(body any) (url.Values, error) {
	switch b := body.(type) {
	case url.Values:
		return b, nil
	case map[string]string:
		values := url.Values{}
		for k, v := range b {
			values.Set(k, v)
		}
		return values, nil
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	var fields map[string]any
	err = decoder.Decode(&fields)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	for key, value := range fields {
		appendQueryValue(values, key, value)
	}
	return values, nil
}

func appendQueryValue(values url.Values, key string, value any) {
	switch v := value.(type) {
	case nil:
	case string:
		values.Add(key, v)
	case json.Number:
		values.Add(key, v.String())
	case bool:
		values.Add(key, strconv.FormatBool(v))
	case []any:
		for _, item := range v {
			appendQueryValue(values, key, item)
		}
	default:
		encoded, err := json.Marshal(v)
		if err == nil {
			values.Add(key, string(encoded))
		}
	}
}

func mergeQuery(dst, src url.Values) url.Values {
	if dst == nil {
		dst = url.Values{}
	}
	for k, vals := range src {
		for _, v := range vals {
			dst.Add(k, v)
		}
	}
	return dst
}
