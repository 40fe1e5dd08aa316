package grpc

import (
	"context"
	_ "embed"
	"fmt"
	"maps"
	"slices"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// SignerProtoFile is the file name the embedded signer definition compiles
// under.
const SignerProtoFile = "txkit/signer/v1/signer.proto"

// SignerProtoEmbedded is the remote signer service definition, compiled
// alongside user-provided proto sources.
//
//go:embed signer.proto
var SignerProtoEmbedded string

// FindMethod searches the compiled files for a method with the given simple
// name and returns the first match together with its file.
func FindMethod(files linker.Files, methodName string) (protoreflect.FileDescriptor, protoreflect.MethodDescriptor, error) {
	for _, file := range files {
		for i := 0; i < file.Services().Len(); i++ {
			service := file.Services().Get(i)
			method := service.Methods().ByName(protoreflect.Name(methodName))
			if method != nil {
				return file, method, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("method %s not found in provided proto files", methodName)
}

// FullMethodName returns the "/<package>.<Service>/<Method>" path of m.
func FullMethodName(m protoreflect.MethodDescriptor) string {
	return "/" + string(m.Parent().FullName()) + "/" + string(m.Name())
}

// CompileProtos compiles proto sources (file name to content) together with
// the embedded signer definition. A user file under SignerProtoFile replaces
// the embedded one.
func CompileProtos(protoFiles map[string]string) (linker.Files, error) {
	sources := make(map[string]string, len(protoFiles)+1)
	sources[SignerProtoFile] = SignerProtoEmbedded
	maps.Copy(sources, protoFiles)

	accessor := protocompile.SourceAccessorFromMap(sources)
	r := protocompile.WithStandardImports(&protocompile.SourceResolver{Accessor: accessor})
	compiler := protocompile.Compiler{
		Resolver:       r,
		SourceInfoMode: protocompile.SourceInfoStandard,
	}
	names := slices.Sorted(maps.Keys(sources))
	fds, err := compiler.Compile(context.Background(), names...)
	if err != nil || fds == nil {
		zap.L().Error("failed to compile proto files", zap.Strings("files", names), zap.Error(err))
		return nil, fmt.Errorf("failed to compile proto files: %w", err)
	}
	return fds, nil
}
