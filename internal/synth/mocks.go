package synth

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	mockAccountId = "123456789012"
	// mockIpv6Block is what every VPC is given in place of an Amazon
	// provided block.
	mockIpv6Block = "2600:1f18:7a3:d500::/56"
	mockAmiId     = "ami-0123456789abcdef0"
)

// unknownValue stands in for values the engine would only know after an
// update.
const unknownValue = "<unknown>"

type recordedResource struct {
	typ          string
	name         string
	custom       bool
	parent       string
	provider     string
	dependencies []string
	inputs       map[string]interface{}
}

type recordedInvoke struct {
	token string
	args  map[string]interface{}
}

// recorder is a pulumi.MockResourceMonitor that keeps every registration and
// answers with values derived only from names and inputs. The SDK calls it
// from several goroutines.
type recorder struct {
	region string

	mu        sync.Mutex
	resources map[string]*recordedResource
	invokes   []recordedInvoke
	errs      []error
}

var _ pulumi.MockResourceMonitor = (*recorder)(nil)

func newRecorder(region string) *recorder {
	return &recorder{
		region:    region,
		resources: map[string]*recordedResource{},
	}
}

func resourceKey(typ, name string) string {
	return typ + "::" + name
}

// urnKey turns a URN, urn:pulumi:<stack>::<project>::<parent$type>::<name>,
// into the key of the resource it names.
func urnKey(urn string) string {
	parts := strings.SplitN(urn, "::", 4)
	if len(parts) != 4 || !strings.HasPrefix(parts[0], "urn:pulumi:") {
		return ""
	}
	qualified := parts[2]
	if i := strings.LastIndex(qualified, "$"); i >= 0 {
		qualified = qualified[i+1:]
	}
	return resourceKey(qualified, parts[3])
}

// providerKey turns a provider reference, "<urn>::<id>", into a key.
func providerKey(ref string) string {
	if ref == "" {
		return ""
	}
	if i := strings.LastIndex(ref, "::"); i >= 0 {
		ref = ref[:i]
	}
	return urnKey(ref)
}

func (r *recorder) NewResource(args pulumi.MockResourceArgs) (string, resource.PropertyMap, error) {
	key := resourceKey(args.TypeToken, args.Name)
	rec := &recordedResource{
		typ:      args.TypeToken,
		name:     args.Name,
		custom:   args.Custom,
		provider: providerKey(args.Provider),
		inputs:   plainMap(args.Inputs),
	}
	if rpc := args.RegisterRPC; rpc != nil {
		rec.parent = urnKey(rpc.GetParent())
		seen := map[string]bool{}
		for _, dep := range rpc.GetDependencies() {
			if k := urnKey(dep); k != "" && !seen[k] {
				seen[k] = true
				rec.dependencies = append(rec.dependencies, k)
			}
		}
		sort.Strings(rec.dependencies)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resources[key]; ok {
		err := fmt.Errorf("duplicate resource %s", key)
		r.errs = append(r.errs, err)
		return "", nil, err
	}
	r.resources[key] = rec

	id := args.ID
	if id == "" {
		id = args.Name + "_id"
	}
	if !args.Custom {
		return id, args.Inputs, nil
	}
	return id, r.state(args), nil
}

// state is the inputs plus the computed attributes this program reads.
func (r *recorder) state(args pulumi.MockResourceArgs) resource.PropertyMap {
	state := args.Inputs.Copy()
	if strings.HasPrefix(args.TypeToken, "pulumi:providers:") {
		return state
	}
	state["arn"] = resource.NewStringProperty(r.arn(args.TypeToken, args.Name))

	switch args.TypeToken {
	case "aws:ec2/vpc:Vpc":
		state["ipv6CidrBlock"] = resource.NewStringProperty(mockIpv6Block)
	case "aws:lb/loadBalancer:LoadBalancer":
		scheme := "elb"
		if v, ok := args.Inputs["internal"]; ok && v.IsBool() && v.BoolValue() {
			scheme = "internal-elb"
		}
		state["dnsName"] = resource.NewStringProperty(
			fmt.Sprintf("%s-%s.%s.%s.amazonaws.com", args.Name, shortHash(args.Name), r.region, scheme))
	case "aws:iam/role:Role":
		if _, ok := state["name"]; !ok {
			state["name"] = resource.NewStringProperty(args.Name)
		}
	}
	return state
}

// arn builds arn:aws:<module>:<region>:<account>:<resource>/<name> from the
// type token, e.g. aws:iam/role:Role.
func (r *recorder) arn(typ, name string) string {
	parts := strings.Split(typ, ":")
	module, kind := "aws", strings.ToLower(typ)
	if len(parts) == 3 {
		mod := strings.SplitN(parts[1], "/", 2)
		module = mod[0]
		if len(mod) == 2 {
			kind = strings.ToLower(mod[1])
		}
	}
	region := r.region
	if module == "iam" {
		region = ""
	}
	return fmt.Sprintf("arn:aws:%s:%s:%s:%s/%s", module, region, mockAccountId, kind, name)
}

func (r *recorder) Call(args pulumi.MockCallArgs) (resource.PropertyMap, error) {
	inputs := plainMap(args.Args)

	r.mu.Lock()
	r.invokes = append(r.invokes, recordedInvoke{token: args.Token, args: inputs})
	r.mu.Unlock()

	switch args.Token {
	case "aws:iam/getPolicyDocument:getPolicyDocument":
		doc, err := policyDocument(inputs)
		if err != nil {
			return nil, err
		}
		return resource.NewPropertyMapFromMap(map[string]interface{}{
			"id":           shortHash(doc),
			"json":         doc,
			"minifiedJson": doc,
		}), nil
	case "aws:ssm/getParameter:getParameter":
		name, _ := inputs["name"].(string)
		return resource.NewPropertyMapFromMap(map[string]interface{}{
			"id":            name,
			"arn":           r.arn("aws:ssm/parameter:Parameter", strings.TrimPrefix(name, "/")),
			"name":          name,
			"type":          "String",
			"value":         mockAmiId,
			"insecureValue": mockAmiId,
			"version":       1,
		}), nil
	case "docker:index/getRegistryImage:getRegistryImage":
		name, _ := inputs["name"].(string)
		sum := sha256.Sum256([]byte(name))
		return resource.NewPropertyMapFromMap(map[string]interface{}{
			"id":           name,
			"name":         name,
			"sha256Digest": "sha256:" + hex.EncodeToString(sum[:]),
		}), nil
	}
	return args.Args, nil
}

// policyDocument renders getPolicyDocument arguments the way IAM prints
// them: single values collapse to a string.
func policyDocument(args map[string]interface{}) (string, error) {
	type statement struct {
		Sid       string                 `json:"Sid,omitempty"`
		Effect    string                 `json:"Effect"`
		Action    interface{}            `json:"Action,omitempty"`
		Resource  interface{}            `json:"Resource,omitempty"`
		Principal map[string]interface{} `json:"Principal,omitempty"`
	}
	type document struct {
		Version   string      `json:"Version"`
		Statement []statement `json:"Statement"`
	}

	doc := document{Version: "2008-10-17"}
	if v, ok := args["version"].(string); ok && v != "" {
		doc.Version = v
	}
	statements, _ := args["statements"].([]interface{})
	for _, s := range statements {
		m, ok := s.(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("unexpected statement %v", s)
		}
		st := statement{Effect: "Allow"}
		if v, ok := m["sid"].(string); ok {
			st.Sid = v
		}
		if v, ok := m["effect"].(string); ok && v != "" {
			st.Effect = v
		}
		st.Action = collapse(m["actions"])
		st.Resource = collapse(m["resources"])
		principals, _ := m["principals"].([]interface{})
		for _, p := range principals {
			pm, ok := p.(map[string]interface{})
			if !ok {
				continue
			}
			if st.Principal == nil {
				st.Principal = map[string]interface{}{}
			}
			typ, _ := pm["type"].(string)
			st.Principal[typ] = collapse(pm["identifiers"])
		}
		doc.Statement = append(doc.Statement, st)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func collapse(v interface{}) interface{} {
	list, ok := v.([]interface{})
	if !ok || len(list) == 0 {
		return nil
	}
	if len(list) == 1 {
		return list[0]
	}
	return list
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:10]
}

func plainMap(props resource.PropertyMap) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[string(k)] = plain(v)
	}
	return out
}

// plain converts a property value into JSON and YAML friendly Go values.
func plain(v resource.PropertyValue) interface{} {
	switch {
	case v.IsNull():
		return nil
	case v.IsBool():
		return v.BoolValue()
	case v.IsNumber():
		return v.NumberValue()
	case v.IsString():
		return v.StringValue()
	case v.IsArray():
		arr := v.ArrayValue()
		out := make([]interface{}, 0, len(arr))
		for _, e := range arr {
			out = append(out, plain(e))
		}
		return out
	case v.IsObject():
		return plainMap(v.ObjectValue())
	case v.IsSecret():
		return plain(v.SecretValue().Element)
	case v.IsComputed():
		return unknownValue
	case v.IsOutput():
		o := v.OutputValue()
		if !o.Known {
			return unknownValue
		}
		return plain(o.Element)
	case v.IsResourceReference():
		ref := v.ResourceReferenceValue()
		return urnKey(string(ref.URN))
	case v.IsAsset():
		return v.AssetValue().Hash
	case v.IsArchive():
		return v.ArchiveValue().Hash
	}
	return fmt.Sprintf("%v", v.V)
}
